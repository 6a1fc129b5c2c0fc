package provider

import "github.com/dshills/goax/pkg/domain/element"

var platformRoles = map[string]element.Role{
	"AXButton":             element.RoleButton,
	"AXToolbarButton":      element.RoleButton,
	"AXLink":               element.RoleLink,
	"AXMenuItem":           element.RoleMenuItem,
	"AXMenuBarItem":        element.RoleMenuItem,
	"AXCheckBox":           element.RoleCheckbox,
	"AXRadioButton":        element.RoleRadio,
	"AXPopUpButton":        element.RoleDropdown,
	"AXComboBox":           element.RoleDropdown,
	"AXTextField":          element.RoleTextField,
	"AXSearchField":        element.RoleTextField,
	"AXTextArea":           element.RoleTextArea,
	"AXTab":                element.RoleTab,
	"AXDisclosureTriangle": element.RoleDisclosure,
	"AXSlider":             element.RoleSlider,
	"AXImage":              element.RoleImage,
	"AXStaticText":         element.RoleText,
	"AXGroup":              element.RoleGroup,
	"AXWindow":             element.RoleWindow,
	"AXApplication":        element.RoleApp,
	"AXScrollArea":         element.RoleScroll,
	"AXTable":              element.RoleTable,
	"AXOutline":            element.RoleTable,
	"AXRow":                element.RoleRow,
	"AXCell":               element.RoleCell,
	"AXColorWell":          element.RoleColorPicker,
}

// interactive platform roles that have no dedicated goax role.
var extraInteractive = map[string]bool{
	"AXIncrementor": true,
}

// NormalizeRole maps a platform role name onto the goax enumeration. Names
// that are already canonical pass through; anything unknown becomes RoleOther.
func NormalizeRole(raw string) element.Role {
	if r, ok := platformRoles[raw]; ok {
		return r
	}
	if r, err := element.ParseRole(raw); err == nil {
		return r
	}
	return element.RoleOther
}

// IsInteractiveRole reports whether a platform role accepts direct input.
func IsInteractiveRole(raw string) bool {
	if extraInteractive[raw] {
		return true
	}
	return NormalizeRole(raw).IsInteractive()
}
