package enums

import "fmt"

// PhotoKind defines which entity an uploaded photo belongs to.
type PhotoKind string

const (
	PhotoKindItem    PhotoKind = "item"
	PhotoKindProfile PhotoKind = "profile"
)

var validPhotoKinds = []PhotoKind{
	PhotoKindItem,
	PhotoKindProfile,
}

// String implements fmt.Stringer.
func (p PhotoKind) String() string {
	return string(p)
}

// IsValid reports whether the kind is one we store.
func (p PhotoKind) IsValid() bool {
	for _, candidate := range validPhotoKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePhotoKind converts raw input into a PhotoKind.
func ParsePhotoKind(value string) (PhotoKind, error) {
	for _, candidate := range validPhotoKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid photo kind %q", value)
}
