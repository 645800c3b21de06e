package enums

import "fmt"

// ItemCondition grades the physical state of a listed item.
type ItemCondition string

const (
	ItemConditionNew     ItemCondition = "new"
	ItemConditionLikeNew ItemCondition = "like_new"
	ItemConditionGood    ItemCondition = "good"
	ItemConditionFair    ItemCondition = "fair"
	ItemConditionPoor    ItemCondition = "poor"
)

var validItemConditions = []ItemCondition{
	ItemConditionNew,
	ItemConditionLikeNew,
	ItemConditionGood,
	ItemConditionFair,
	ItemConditionPoor,
}

// IsValid reports whether the condition is known.
func (c ItemCondition) IsValid() bool {
	for _, candidate := range validItemConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseItemCondition converts raw input into an ItemCondition.
func ParseItemCondition(value string) (ItemCondition, error) {
	for _, candidate := range validItemConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item condition %q", value)
}
