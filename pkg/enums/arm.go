package enums

import "fmt"

// ExperimentArm names the treatment branch a simulated user is assigned to.
type ExperimentArm string

const (
	ExperimentArmControl ExperimentArm = "control"
	ExperimentArmTest    ExperimentArm = "test"
)

var validExperimentArms = []ExperimentArm{
	ExperimentArmControl,
	ExperimentArmTest,
}

// String implements fmt.Stringer.
func (a ExperimentArm) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ExperimentArm.
func (a ExperimentArm) IsValid() bool {
	for _, candidate := range validExperimentArms {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseExperimentArm converts raw input into an ExperimentArm.
func ParseExperimentArm(value string) (ExperimentArm, error) {
	for _, candidate := range validExperimentArms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid experiment arm %q", value)
}
