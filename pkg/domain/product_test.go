package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRecord_AddReview_DedupesAndCaps(t *testing.T) {
	var p ProductRecord

	for _, r := range []string{"good", "good", " bad ", "ok", "meh", "great", "late"} {
		p.AddReview(r)
	}

	assert.Equal(t, []string{"good", "bad", "ok", "meh", "great"}, p.Reviews)
}

func TestProductRecord_AddImage(t *testing.T) {
	var p ProductRecord

	assert.True(t, p.AddImage("https://img.example.com/a.jpg"))
	assert.False(t, p.AddImage("https://img.example.com/a.jpg"))
	assert.False(t, p.AddImage("  "))
	assert.Equal(t, "https://img.example.com/a.jpg", p.PrimaryImage())
}

func TestProductRecord_NeedsPrice(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  bool
	}{
		{"empty", "", true},
		{"n/a placeholder", "n/a", true},
		{"None placeholder", "None", true},
		{"real price", "₹1,299", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProductRecord{Offers: Offers{Price: tt.price}}
			assert.Equal(t, tt.want, p.NeedsPrice())
		})
	}
}

func TestProductRecord_Finalize(t *testing.T) {
	p := ProductRecord{Price: "₹499"}
	p.Finalize()

	assert.Equal(t, UnknownName, p.Name)
	assert.Equal(t, "₹499", p.Offers.Price)
	assert.NotNil(t, p.Images)
	assert.NotNil(t, p.Reviews)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"images":[]`)
	assert.Contains(t, string(data), `"offers":{"price":"₹499"}`)
}
