package api

import (
	"sort"
	"strconv"
	"strings"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Subject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Credits int    `json:"credits"`
}

type Student struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type ResultEntry struct {
	ID          string  `json:"id"`
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	Marks       float64 `json:"marks"`
	MaxMarks    float64 `json:"max_marks"`
	Grade       string  `json:"grade"`
	Semester    string  `json:"semester"`
	Year        string  `json:"year"`
}

// ResultsSummary is the per-student aggregate computed by the server.
type ResultsSummary struct {
	Student           *Student                 `json:"student,omitempty"`
	OverallGPA        float64                  `json:"overall_gpa"`
	TotalSubjects     int                      `json:"total_subjects"`
	ResultsBySemester map[string][]ResultEntry `json:"results_by_semester"`
	SemesterGPAs      map[string]float64       `json:"semester_gpas"`
}

type Stats struct {
	TotalStudents int `json:"total_students"`
	TotalSubjects int `json:"total_subjects"`
	TotalResults  int `json:"total_results"`
}

type Health struct {
	Status string `json:"status"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type ResultResponse struct {
	Message string      `json:"message"`
	Result  ResultEntry `json:"result"`
}

type SubjectResponse struct {
	Message string  `json:"message"`
	Subject Subject `json:"subject"`
}

type subjectsEnvelope struct {
	Subjects []Subject `json:"subjects"`
}

type studentsEnvelope struct {
	Students []Student `json:"students"`
}

// SemesterKey orders the keys of ResultsBySemester. The server emits
// "2024-Fall"; "Fall-2024" is accepted as well.
type SemesterKey struct {
	Key    string
	Term   string
	Year   int
	season int
	parsed bool
}

// Label renders a key for display, e.g. "2024-Fall" -> "2024 - Fall".
func (k SemesterKey) Label() string {
	return strings.Replace(k.Key, "-", " - ", 1)
}

func ParseSemesterKey(key string) SemesterKey {
	sk := SemesterKey{Key: key}
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return sk
	}

	first, second := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if year, err := strconv.Atoi(first); err == nil {
		sk.Year, sk.Term = year, second
	} else if year, err := strconv.Atoi(second); err == nil {
		sk.Year, sk.Term = year, first
	} else {
		return sk
	}

	switch strings.ToLower(sk.Term) {
	case "spring":
		sk.season = 1
	case "summer":
		sk.season = 2
	case "fall", "autumn":
		sk.season = 3
	default:
		sk.season = 4
	}
	sk.parsed = true
	return sk
}

// Semesters returns the summary's semester keys oldest first.
func (r ResultsSummary) Semesters() []SemesterKey {
	keys := make([]SemesterKey, 0, len(r.ResultsBySemester))
	for key := range r.ResultsBySemester {
		keys = append(keys, ParseSemesterKey(key))
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if a.parsed {
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			if a.season != b.season {
				return a.season < b.season
			}
		}
		return a.Key < b.Key
	})

	return keys
}
