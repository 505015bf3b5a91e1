package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint_RoundTrip(t *testing.T) {
	in := Point{Lat: 55.6761, Lng: 12.5683}

	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, "(12.5683,55.6761)", v)

	var out Point
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.InDelta(t, in.Lat, out.Lat, 1e-9)
	assert.InDelta(t, in.Lng, out.Lng, 1e-9)
}

func TestPoint_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    Point
		wantErr bool
	}{
		{name: "string", src: "(-73.9857,40.7484)", want: Point{Lat: 40.7484, Lng: -73.9857}},
		{name: "bytes with spaces", src: []byte("( 2.35 , 48.85 )"), want: Point{Lat: 48.85, Lng: 2.35}},
		{name: "nil", src: nil, want: Point{}},
		{name: "one component", src: "(1.5)", wantErr: true},
		{name: "not a number", src: "(a,b)", wantErr: true},
		{name: "unsupported type", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point
			err := p.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Lat, p.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, p.Lng, 1e-9)
		})
	}
}

func TestReviewRequest_ToReview_DefaultsImages(t *testing.T) {
	req := &ReviewRequest{
		LocationName: "Torvehallerne",
		LocationType: "market",
		Coordinates:  &Point{Lat: 55.6838, Lng: 12.5701},
		PrimaryEmoji: "🥐",
	}

	review := req.ToReview(7)

	assert.Equal(t, int64(7), review.UserID)
	assert.NotNil(t, review.Images)
	assert.Len(t, review.Images, 0)
	assert.Equal(t, *req.Coordinates, review.Coordinates)
}
