package entity

import (
	"time"
)

type Profile struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Department    string     `gorm:"size:100;not null;default:IT" json:"department"`
	Title         string     `gorm:"size:100;default:Assistant Professor" json:"title"`
	Bio           string     `gorm:"type:text" json:"bio"`
	Qualifications string    `gorm:"type:text" json:"qualifications"`
	DateOfJoining string     `gorm:"size:50" json:"date_of_joining"`
	Experience    string     `gorm:"type:text" json:"experience"`
	Research      string     `gorm:"type:text" json:"research"`

	ProfilePic           *string `gorm:"column:profile_pic" json:"profile_pic"`
	TenthCert            *string `gorm:"column:tenth_cert" json:"tenth_cert"`
	TwelfthCert          *string `gorm:"column:twelfth_cert" json:"twelfth_cert"`
	AppointmentOrder     *string `gorm:"column:appointment_order" json:"appointment_order"`
	JoiningReport        *string `gorm:"column:joining_report" json:"joining_report"`
	UgDegree             *string `gorm:"column:ug_degree" json:"ug_degree"`
	PgMsConsolidated     *string `gorm:"column:pg_ms_consolidated" json:"pg_ms_consolidated"`
	PhdDegree            *string `gorm:"column:phd_degree" json:"phd_degree"`
	JournalsList         *string `gorm:"column:journals_list" json:"journals_list"`
	ConferencesList      *string `gorm:"column:conferences_list" json:"conferences_list"`
	AuSupervisorLetter   *string `gorm:"column:au_supervisor_letter" json:"au_supervisor_letter"`
	FdpWorkshopsWebinars *string `gorm:"column:fdp_workshops_webinars" json:"fdp_workshops_webinars"`
	NptelCoursera        *string `gorm:"column:nptel_coursera" json:"nptel_coursera"`
	InvitedTalks         *string `gorm:"column:invited_talks" json:"invited_talks"`
	ProjectsSanction     *string `gorm:"column:projects_sanction" json:"projects_sanction"`
	Consultancy          *string `gorm:"column:consultancy" json:"consultancy"`
	Patent               *string `gorm:"column:patent" json:"patent"`
	CommunityCert        *string `gorm:"column:community_cert" json:"community_cert"`
	Aadhar               *string `gorm:"column:aadhar" json:"aadhar"`
	Pan                  *string `gorm:"column:pan" json:"pan"`

	IsLocked      bool       `gorm:"not null;default:false" json:"is_locked"`
	LockExpiry    *time.Time `json:"lock_expiry"`
	EditRequested bool       `gorm:"not null;default:false" json:"edit_requested"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DocumentSlots lists every file slot column in a stable order. The profile
// picture participates so replacement and cleanup treat it like any other slot.
var DocumentSlots = []string{
	"profile_pic",
	"tenth_cert",
	"twelfth_cert",
	"appointment_order",
	"joining_report",
	"ug_degree",
	"pg_ms_consolidated",
	"phd_degree",
	"journals_list",
	"conferences_list",
	"au_supervisor_letter",
	"fdp_workshops_webinars",
	"nptel_coursera",
	"invited_talks",
	"projects_sanction",
	"consultancy",
	"patent",
	"community_cert",
	"aadhar",
	"pan",
}

// IsDocumentSlot reports whether name is a recognized file slot.
func IsDocumentSlot(name string) bool {
	_, ok := slotFields[name]
	return ok
}

var slotFields = map[string]func(*Profile) **string{
	"profile_pic":            func(p *Profile) **string { return &p.ProfilePic },
	"tenth_cert":             func(p *Profile) **string { return &p.TenthCert },
	"twelfth_cert":           func(p *Profile) **string { return &p.TwelfthCert },
	"appointment_order":      func(p *Profile) **string { return &p.AppointmentOrder },
	"joining_report":         func(p *Profile) **string { return &p.JoiningReport },
	"ug_degree":              func(p *Profile) **string { return &p.UgDegree },
	"pg_ms_consolidated":     func(p *Profile) **string { return &p.PgMsConsolidated },
	"phd_degree":             func(p *Profile) **string { return &p.PhdDegree },
	"journals_list":          func(p *Profile) **string { return &p.JournalsList },
	"conferences_list":       func(p *Profile) **string { return &p.ConferencesList },
	"au_supervisor_letter":   func(p *Profile) **string { return &p.AuSupervisorLetter },
	"fdp_workshops_webinars": func(p *Profile) **string { return &p.FdpWorkshopsWebinars },
	"nptel_coursera":         func(p *Profile) **string { return &p.NptelCoursera },
	"invited_talks":          func(p *Profile) **string { return &p.InvitedTalks },
	"projects_sanction":      func(p *Profile) **string { return &p.ProjectsSanction },
	"consultancy":            func(p *Profile) **string { return &p.Consultancy },
	"patent":                 func(p *Profile) **string { return &p.Patent },
	"community_cert":         func(p *Profile) **string { return &p.CommunityCert },
	"aadhar":                 func(p *Profile) **string { return &p.Aadhar },
	"pan":                    func(p *Profile) **string { return &p.Pan },
}

// DocumentPath returns the stored path for a slot, or nil when the slot is
// empty or unknown.
func (p *Profile) DocumentPath(slot string) *string {
	field, ok := slotFields[slot]
	if !ok {
		return nil
	}
	return *field(p)
}

// SetDocumentPath writes a slot's stored path. Unknown slots are ignored.
func (p *Profile) SetDocumentPath(slot string, path *string) {
	field, ok := slotFields[slot]
	if !ok {
		return
	}
	*field(p) = path
}

// DocumentPaths returns every non-empty slot path keyed by slot name.
func (p *Profile) DocumentPaths() map[string]string {
	paths := make(map[string]string)
	for _, slot := range DocumentSlots {
		if v := p.DocumentPath(slot); v != nil && *v != "" {
			paths[slot] = *v
		}
	}
	return paths
}
