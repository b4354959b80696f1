package section

type Semester struct {
	ID     int64  `gorm:"column:id;primaryKey"`
	Number int    `gorm:"column:number;not null;unique"`
	Name   string `gorm:"column:name;not null"`
}

func (Semester) TableName() string {
	return "semesters"
}

type Section struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	SemesterID int64     `gorm:"column:semester_id;not null"`
	Name       string    `gorm:"column:name;not null"`
	Semester   *Semester `gorm:"foreignKey:SemesterID;references:ID"`
}

func (Section) TableName() string {
	return "sections"
}
