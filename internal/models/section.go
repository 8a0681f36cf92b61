package models

// Section identifies one of the page sections reachable from the menu.
type Section string

const (
	SectionDashboard Section = "dashboard"
	SectionDiagnose  Section = "diagnose"
	SectionChat      Section = "chat"
	SectionAbout     Section = "about"
)

// DefaultSection is shown when a session starts.
const DefaultSection = SectionDashboard

// NavItem is a navigation menu entry.
type NavItem struct {
	Section Section
	Label   string
	Icon    string
}

// Menu lists the navigation entries in display order.
var Menu = []NavItem{
	{Section: SectionDashboard, Label: "Dashboard", Icon: "fa-home"},
	{Section: SectionDiagnose, Label: "Diagnose", Icon: "fa-leaf"},
	{Section: SectionChat, Label: "Ask KrishiMitra", Icon: "fa-comments"},
	{Section: SectionAbout, Label: "About", Icon: "fa-info-circle"},
}

// IsKnown reports whether s is one of the menu sections.
func (s Section) IsKnown() bool {
	for _, item := range Menu {
		if item.Section == s {
			return true
		}
	}
	return false
}
