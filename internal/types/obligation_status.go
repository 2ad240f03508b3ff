package types

import "fmt"

type ObligationStatus string

const (
	Unsettled ObligationStatus = "unsettled"
	Settled   ObligationStatus = "settled"
)

func (s ObligationStatus) ToString() string {
	return string(s)
}

func FromStringToObligationStatus(s string) (ObligationStatus, error) {
	switch s {
	case "unsettled":
		return Unsettled, nil
	case "settled":
		return Settled, nil
	default:
		return "", fmt.Errorf("invalid obligation status: %s", s)
	}
}
