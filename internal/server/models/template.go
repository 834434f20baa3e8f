package models

// Gender is the participant category a room admits. "host" is the category
// used for anyone joining with a host claim.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderHost   Gender = "host"
)

// Template fixes a room's admission policy at creation time.
type Template string

const (
	TemplateBrothersOnly      Template = "brothers-only"
	TemplateSistersOnly       Template = "sisters-only"
	TemplateMixedHostRequired Template = "mixed-host-required"
	TemplateOpen              Template = "open"
)

// RoomSettings are derived from the template and consulted at join time.
type RoomSettings struct {
	AllowedGenders  []Gender `json:"allowedGenders"`
	RequireHost     bool     `json:"requireHost"`
	MaxParticipants *int     `json:"maxParticipants"`
}

// Allows reports whether g is one of the admitted genders.
func (s RoomSettings) Allows(g Gender) bool {
	for _, a := range s.AllowedGenders {
		if a == g {
			return true
		}
	}
	return false
}

// TemplateInfo describes a template for listings.
type TemplateInfo struct {
	Name        string
	Description string
	Settings    RoomSettings
}

var templates = map[Template]TemplateInfo{
	TemplateBrothersOnly: {
		Name:        "Brothers Only",
		Description: "Male participants only",
		Settings:    RoomSettings{AllowedGenders: []Gender{GenderMale, GenderHost}},
	},
	TemplateSistersOnly: {
		Name:        "Sisters Only",
		Description: "Female participants only",
		Settings:    RoomSettings{AllowedGenders: []Gender{GenderFemale, GenderHost}},
	},
	TemplateMixedHostRequired: {
		Name:        "Mixed (Host Required)",
		Description: "Both genders, host must be present",
		Settings:    RoomSettings{AllowedGenders: []Gender{GenderMale, GenderFemale, GenderHost}, RequireHost: true},
	},
	TemplateOpen: {
		Name:        "Open",
		Description: "No restrictions",
		Settings:    RoomSettings{AllowedGenders: []Gender{GenderMale, GenderFemale, GenderHost}},
	},
}

// Valid reports whether t is a known template.
func (t Template) Valid() bool {
	_, ok := templates[t]
	return ok
}

// Info returns the template's description; ok is false for unknown templates.
func (t Template) Info() (TemplateInfo, bool) {
	info, ok := templates[t]
	return info, ok
}

// Settings returns a fresh copy of the template's settings. Unknown templates
// admit nobody.
func (t Template) Settings() RoomSettings {
	info, ok := templates[t]
	if !ok {
		return RoomSettings{AllowedGenders: []Gender{}}
	}
	s := info.Settings
	s.AllowedGenders = append([]Gender(nil), info.Settings.AllowedGenders...)
	return s
}

// Templates lists the known templates in a stable order.
func Templates() []Template {
	return []Template{TemplateBrothersOnly, TemplateSistersOnly, TemplateMixedHostRequired, TemplateOpen}
}
