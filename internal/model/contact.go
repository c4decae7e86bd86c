package model

// Contact is one captured business card or manual entry, the main content
// of the individual dashboard.  Only Name is guaranteed; everything else
// depends on what the card carried or the user typed in.
type Contact struct {
    ID                string   `json:"id"`
    Name              string   `json:"name"`
    Email             string   `json:"email,omitempty"`
    Phone             string   `json:"phone,omitempty"`
    Company           string   `json:"company,omitempty"`
    JobTitle          string   `json:"jobTitle,omitempty"`
    DisplayPictureURL string   `json:"displayPictureUrl,omitempty"`
    CardImageURLs     []string `json:"cardImageUrls,omitempty"`
    Address           string   `json:"address,omitempty"`
    Website           string   `json:"website,omitempty"`
    Notes             string   `json:"notes,omitempty"`
    CreatedAt         string   `json:"createdAt,omitempty"`
}

// ContactUpdate carries the editable fields of a contact.  Pointer fields
// distinguish "leave unchanged" from "clear", same as ProfileUpdate.
type ContactUpdate struct {
    Name     *string `json:"name,omitempty"`
    Email    *string `json:"email,omitempty"`
    Phone    *string `json:"phone,omitempty"`
    Company  *string `json:"company,omitempty"`
    JobTitle *string `json:"jobTitle,omitempty"`
    Address  *string `json:"address,omitempty"`
    Website  *string `json:"website,omitempty"`
    Notes    *string `json:"notes,omitempty"`
}
