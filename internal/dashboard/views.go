// Package dashboard resolves which console view a request asks for.
package dashboard

import "strings"

// View identifies a page of the console.
type View string

const (
	Connections       View = "connections"
	ShareAccess       View = "share-access"
	CreateAccess      View = "create-access"
	SubscriptionAdmin View = "subscription-admin"
	BankDetails       View = "bank-details"
)

// DefaultView is shown for a missing, unknown or forbidden view.
const DefaultView = Connections

// Views lists every view in sidebar order.
var Views = []View{Connections, ShareAccess, CreateAccess, SubscriptionAdmin, BankDetails}

var privileged = map[View]bool{
	SubscriptionAdmin: true,
	BankDetails:       true,
}

var adminUserTypes = map[string]bool{
	"admin":      true,
	"superadmin": true,
}

// IsAdmin reports whether a user_type carries admin rights.
func IsAdmin(userType string) bool {
	return adminUserTypes[strings.ToLower(strings.TrimSpace(userType))]
}

// CanAccessAdminSubscription gates the subscription admin and bank details
// pages.
func CanAccessAdminSubscription(userType string) bool {
	return IsAdmin(userType)
}

// IsPrivileged reports whether v needs admin rights.
func IsPrivileged(v View) bool {
	return privileged[v]
}

// CanView reports whether a user of userType may open v.
func CanView(v View, userType string) bool {
	if !IsPrivileged(v) {
		return true
	}
	return CanAccessAdminSubscription(userType)
}

// Resolution is the outcome of resolving the view query parameter.
type Resolution struct {
	View      View   `json:"view"`
	Requested string `json:"requested,omitempty"`
	Unknown   bool   `json:"unknown,omitempty"`
	Denied    bool   `json:"denied,omitempty"`
	Available []View `json:"available"`
}

// Resolve maps the requested view to the one to render.
func Resolve(requested, userType string) Resolution {
	res := Resolution{View: DefaultView, Requested: requested, Available: Available(userType)}
	if requested == "" {
		return res
	}
	v := View(requested)
	known := false
	for _, candidate := range Views {
		if candidate == v {
			known = true
			break
		}
	}
	switch {
	case !known:
		res.Unknown = true
	case !CanView(v, userType):
		res.Denied = true
	default:
		res.View = v
	}
	return res
}

// Available lists the views a user of userType can open.
func Available(userType string) []View {
	out := make([]View, 0, len(Views))
	for _, v := range Views {
		if CanView(v, userType) {
			out = append(out, v)
		}
	}
	return out
}
