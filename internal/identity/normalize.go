package identity

import (
	"errors"
	"strings"
)

// NormalizeProfile folds the SSO payload's historical key variants into one
// canonical Profile. The provider has shipped several shapes over the years,
// including a branch key that literally contains spaces; all of that is
// absorbed here so nothing downstream ever branches on payload shape.
func NormalizeProfile(raw map[string]any, pictureBase string) (Profile, error) {
	student := submap(raw, "student")
	person := submap(raw, "person")
	contact := firstMap(raw, "contactInformation", "contact_information")

	enrollment := firstString(
		pick(student, "enrolment_number", "enrolmentNumber"),
		pick(raw, "enrolmentNumber", "username"),
	)
	if enrollment == "" {
		return Profile{}, errors.New("no enrollment number in identity payload")
	}

	fullName := firstString(
		pick(person, "fullName", "full_name"),
		pick(raw, "fullName", "full_name"),
	)
	if fullName == "" {
		fullName = "Unknown User"
	}

	var picture *string
	if pic := pick(person, "displayPicture", "display_picture"); pic != "" {
		if !strings.HasPrefix(pic, "http") && pictureBase != "" {
			pic = strings.TrimSuffix(pictureBase, "/") + pic
		}
		picture = &pic
	}

	branch := pick(student, "branch department name")
	if branch == "" {
		if b := submap(student, "branch"); b != nil {
			branch = firstString(pick(submap(b, "department"), "name"), pick(b, "name"))
		}
	}
	if branch == "" {
		if s, ok := student["branch"].(string); ok {
			branch = s
		}
	}
	if branch == "" {
		branch = "Unknown"
	}

	email := firstString(
		pick(contact, "instituteWebmailAddress", "institute_webmail_address"),
		pick(raw, "email"),
	)

	return Profile{
		EnrollmentNumber: enrollment,
		FullName:         fullName,
		DisplayPicture:   picture,
		Branch:           branch,
		Email:            email,
	}, nil
}

func submap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v := submap(m, k); v != nil {
			return v
		}
	}
	return nil
}

func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
