package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Query
	}{
		{"", Query{Page: 1, Size: DefaultSize}},
		{"?page=3&size=5", Query{Page: 3, Size: 5}},
		{"?page=-1&size=0", Query{Page: 1, Size: DefaultSize}},
		{"?page=x&size=1000", Query{Page: 1, Size: MaxSize}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/api/flashcard-sets"+tt.query, nil)
			assert.Equal(t, tt.want, FromContext(c))
		})
	}
}
