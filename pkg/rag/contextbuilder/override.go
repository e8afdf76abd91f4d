package contextbuilder

import (
	"fmt"

	"chartnotes-be/pkg/utils"
)

type OverrideType int

const (
	OverrideSingleDate OverrideType = iota
	OverrideDateRange
)

// DateOverride forces a calendar day (or a range of days) into the
// assembled context regardless of similarity rank. Inclusion is
// best-effort: days with no indexed vectors are skipped, and days the
// similarity results already cover are never duplicated.
type DateOverride struct {
	Type         OverrideType
	Start        string // storage format; the single date for OverrideSingleDate
	End          string // inclusive, OverrideDateRange only
	OutputPrefix string
	OutputSuffix string
}

// dates expands the override into the list of storage-format days it covers.
func (o DateOverride) dates() ([]string, error) {
	start, err := utils.ParseStorageDate(o.Start)
	if err != nil {
		return nil, err
	}
	if o.Type == OverrideSingleDate {
		return []string{o.Start}, nil
	}

	end, err := utils.ParseStorageDate(o.End)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid date range %s..%s", o.Start, o.End)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(utils.StorageDateFormat))
	}
	return days, nil
}

// NewLastSessionOverride wraps a patient's most recent session date with
// the disclosure markers the answer prompt expects.
func NewLastSessionOverride(sessionDate string) DateOverride {
	return DateOverride{
		Type:         OverrideSingleDate,
		Start:        sessionDate,
		OutputPrefix: "Here is the context from the patient's most recent session:\n",
		OutputSuffix: "\nEnd of the patient's most recent session context.",
	}
}
