package model

// UserType distinguishes the two account kinds the backend issues.  The
// value routes a logged-in session to the individual or the organization
// dashboard, but only ever after a fresh profile fetch: the locally cached
// copy may predate a type change made server-side.
type UserType string

const (
    UserTypeIndividual   UserType = "individual"
    UserTypeOrganization UserType = "organization"
)

// UserSnapshot is the last-known projection of the backend's user record.
// It is a cache, never authoritative: any backend response carrying a user
// overwrites it wholesale.  Fields mirror the backend JSON contract.
//
// Fields:
//
//	ID                   – backend identifier of the user.
//	Email                – login email address.
//	FirstName, LastName  – name parts as edited on the profile page.
//	UserType             – individual or organization account.
//	IsEmailVerified      – whether the OTP verification completed.
//	ActiveOrganizationID – organization currently selected as context, if any.
//	SubscriptionStatus   – free/active/expired/cancelled summary.
//	PlanID               – identifier of the subscribed plan, if any.
//	CreditsRemaining     – credit balance shown on dashboards.
type UserSnapshot struct {
    ID                   string   `json:"id"`
    Email                string   `json:"email"`
    FirstName            string   `json:"firstName"`
    LastName             string   `json:"lastName"`
    UserType             UserType `json:"userType"`
    IsEmailVerified      bool     `json:"isEmailVerified"`
    ActiveOrganizationID string   `json:"activeOrganizationId,omitempty"`
    SubscriptionStatus   string   `json:"subscriptionStatus,omitempty"`
    PlanID               string   `json:"planId,omitempty"`
    CreditsRemaining     int      `json:"creditsRemaining,omitempty"`
}

// FullName joins the name parts the way the dashboards display them.
func (u UserSnapshot) FullName() string {
    switch {
    case u.FirstName == "":
        return u.LastName
    case u.LastName == "":
        return u.FirstName
    default:
        return u.FirstName + " " + u.LastName
    }
}

// ProfileUpdate carries the editable subset of the profile.  Pointer fields
// distinguish "leave unchanged" from "clear".
type ProfileUpdate struct {
    FirstName      *string `json:"firstName,omitempty"`
    LastName       *string `json:"lastName,omitempty"`
    PhoneNumber    *string `json:"phoneNumber,omitempty"`
    WhatsappNumber *string `json:"whatsappNumber,omitempty"`
    Country        *string `json:"country,omitempty"`
    Address        *string `json:"address,omitempty"`
    Bio            *string `json:"bio,omitempty"`
}
