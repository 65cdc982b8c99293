package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeNestedPayload(t *testing.T) {
	raw := map[string]any{
		"person": map[string]any{
			"fullName":       "Asha Verma",
			"displayPicture": "/media/pics/asha.jpg",
		},
		"student": map[string]any{
			"enrolment_number": "21BCS123",
			"branch": map[string]any{
				"department": map[string]any{"name": "Computer Science"},
			},
		},
		"contactInformation": map[string]any{
			"instituteWebmailAddress": "asha@inst.edu",
		},
	}

	p, err := NormalizeProfile(raw, "https://sso.example.com")
	require.NoError(t, err)
	require.Equal(t, "21BCS123", p.EnrollmentNumber)
	require.Equal(t, "Asha Verma", p.FullName)
	require.Equal(t, "Computer Science", p.Branch)
	require.Equal(t, "asha@inst.edu", p.Email)
	require.NotNil(t, p.DisplayPicture)
	require.Equal(t, "https://sso.example.com/media/pics/asha.jpg", *p.DisplayPicture)
}

func TestNormalizeFlatPayload(t *testing.T) {
	raw := map[string]any{
		"username":  "21BEE042",
		"full_name": "Ravi Kumar",
		"email":     "ravi@inst.edu",
	}

	p, err := NormalizeProfile(raw, "")
	require.NoError(t, err)
	require.Equal(t, "21BEE042", p.EnrollmentNumber)
	require.Equal(t, "Ravi Kumar", p.FullName)
	require.Equal(t, "ravi@inst.edu", p.Email)
	require.Equal(t, "Unknown", p.Branch)
	require.Nil(t, p.DisplayPicture)
}

func TestNormalizeBranchKeyWithSpaces(t *testing.T) {
	raw := map[string]any{
		"student": map[string]any{
			"enrolmentNumber":        "21BME007",
			"branch department name": "Mechanical Engineering",
		},
	}

	p, err := NormalizeProfile(raw, "")
	require.NoError(t, err)
	require.Equal(t, "Mechanical Engineering", p.Branch)
}

func TestNormalizeBranchAsPlainString(t *testing.T) {
	raw := map[string]any{
		"student": map[string]any{
			"enrolment_number": "21BCE001",
			"branch":           "Civil Engineering",
		},
	}

	p, err := NormalizeProfile(raw, "")
	require.NoError(t, err)
	require.Equal(t, "Civil Engineering", p.Branch)
}

func TestNormalizeAbsolutePictureIsKept(t *testing.T) {
	raw := map[string]any{
		"enrolmentNumber": "21BCS500",
		"person": map[string]any{
			"display_picture": "https://cdn.example.com/u.png",
		},
	}

	p, err := NormalizeProfile(raw, "https://sso.example.com")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/u.png", *p.DisplayPicture)
}

func TestNormalizeMissingEnrollment(t *testing.T) {
	_, err := NormalizeProfile(map[string]any{"full_name": "Nobody"}, "")
	require.Error(t, err)
}

func TestNormalizeMissingNameDefaults(t *testing.T) {
	p, err := NormalizeProfile(map[string]any{"username": "21BCS900"}, "")
	require.NoError(t, err)
	require.Equal(t, "Unknown User", p.FullName)
}
