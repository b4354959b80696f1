package section

type SectionResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SemesterID   int64  `json:"semesterId"`
	SemesterName string `json:"semesterName,omitempty"`
	Semester     int    `json:"semester,omitempty"`
}
