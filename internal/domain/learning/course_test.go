package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPublishableContent(t *testing.T) {
	c := &Course{}
	assert.False(t, c.HasPublishableContent(), "no modules")

	c.Modules = []*Module{{Title: "m1"}}
	assert.False(t, c.HasPublishableContent(), "module without lessons")

	c.Modules = append(c.Modules, &Module{Title: "m2", Lessons: []*Lesson{{Title: "l1"}}})
	assert.True(t, c.HasPublishableContent())
	assert.Equal(t, 1, c.LessonCount())
}
