package models

import (
	"time"
)

type JobType string

const (
	JobTypeCampus     JobType = "校招"
	JobTypeInternship JobType = "实习"
)

// ParseJobType accepts both the Chinese labels and the English aliases used in config files.
func ParseJobType(s string) (JobType, bool) {
	switch s {
	case "校招", "campus":
		return JobTypeCampus, true
	case "实习", "internship", "intern":
		return JobTypeInternship, true
	}
	return "", false
}

type Status string

const (
	StatusAdded     Status = "新增"
	StatusUpdated   Status = "更新"
	StatusUnchanged Status = ""
	StatusExpired   Status = "过期"
)

// DeadlineUntilFilled marks listings that stay open until the quota is filled.
const DeadlineUntilFilled = "招满为止"

// Record is one row of the listing table plus the bookkeeping added on our side.
type Record struct {
	Company         string    `json:"company"`
	CompanyType     string    `json:"company_type"`
	Location        string    `json:"location"`
	RecruitmentType string    `json:"recruitment_type"`
	Target          string    `json:"target"`
	Position        string    `json:"position"`
	UpdateTime      string    `json:"update_time"`
	Deadline        string    `json:"deadline"`
	Links           string    `json:"links"`
	Notice          string    `json:"notice"`
	Referral        string    `json:"referral"`
	Notes           string    `json:"notes"`
	JobType         JobType   `json:"job_type"`
	CrawlTime       time.Time `json:"crawl_time"`
	FirstSeen       time.Time `json:"first_seen"`
	ChangedAt       time.Time `json:"changed_at"`
	Status          Status    `json:"status"`
}

// SameContent reports whether two records carry the same scraped fields.
// The timestamps and status are ours, not the site's, so they are ignored.
func (r Record) SameContent(o Record) bool {
	return r.Company == o.Company &&
		r.CompanyType == o.CompanyType &&
		r.Location == o.Location &&
		r.RecruitmentType == o.RecruitmentType &&
		r.Target == o.Target &&
		r.Position == o.Position &&
		r.UpdateTime == o.UpdateTime &&
		r.Deadline == o.Deadline &&
		r.Links == o.Links &&
		r.Notice == o.Notice &&
		r.Referral == o.Referral &&
		r.Notes == o.Notes &&
		r.JobType == o.JobType
}
