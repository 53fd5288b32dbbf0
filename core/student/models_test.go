package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEducationLevel(t *testing.T) {
	tests := []struct {
		grade string
		want  string
	}{
		{"PP1", LevelEarlyYears},
		{"PP2", LevelEarlyYears},
		{"Grade 1", LevelLowerPrimary},
		{"Grade 3", LevelLowerPrimary},
		{"Grade 4", LevelUpperPrimary},
		{"Grade 6", LevelUpperPrimary},
		{"Grade 7", LevelJuniorSecondary},
		{"Grade 9", LevelJuniorSecondary},
		{"Form 2", LevelOther},
		{"", LevelOther},
	}
	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			assert.Equal(t, tt.want, EducationLevel(tt.grade))
		})
	}
}

func TestStudent_FullName(t *testing.T) {
	std := Student{FirstName: "John", LastName: "Doe"}
	assert.Equal(t, "John Doe", std.FullName())
}

func TestStudent_PrimaryGuardian(t *testing.T) {
	std := Student{}
	_, ok := std.PrimaryGuardian()
	assert.False(t, ok)

	std.Guardians = []Guardian{{Name: "Jane"}, {Name: "Joe"}}
	g, ok := std.PrimaryGuardian()
	assert.True(t, ok)
	assert.Equal(t, "Jane", g.Name)
}
