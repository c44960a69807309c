package models

import "fmt"

// StudentSubjectKey is the composite dimension for academics rollups.
type StudentSubjectKey struct {
	StudentID string
	SubjectID string
}

func (k StudentSubjectKey) String() string {
	return fmt.Sprintf("%s-%s", k.StudentID, k.SubjectID)
}

// ClassSubjectKey is the composite dimension for syllabus rollups.
type ClassSubjectKey struct {
	ClassID   string
	SubjectID string
}

func (k ClassSubjectKey) String() string {
	return fmt.Sprintf("%s-%s", k.ClassID, k.SubjectID)
}
