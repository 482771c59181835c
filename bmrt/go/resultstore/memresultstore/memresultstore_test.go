package memresultstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lwz9103/conbench/bmrt/go/fixture"
	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/resultstore/resultstoretest"
)

func TestMemResultStore(t *testing.T) {
	for name, subTest := range resultstoretest.SubTests {
		t.Run(name, func(t *testing.T) {
			subTest(t, func(t *testing.T, f *fixture.Fixture) resultstore.Store {
				s := New()
				s.Add(f.RawResults()...)
				return s
			})
		})
	}
}

func TestStreamRecent_InvalidPageSize_ReturnsError(t *testing.T) {
	s := New()
	err := s.StreamRecent(context.Background(), 10, 0, func(*resultstore.RawResult) error { return nil })
	assert.Error(t, err)
}

func TestStreamRecent_CancelledContext_ReturnsError(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.StreamRecent(ctx, 10, 1, func(*resultstore.RawResult) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdd_ReplacesByID(t *testing.T) {
	s := New()
	s.Add(&resultstore.RawResult{ID: "a", SVS: fixture.Float(1)})
	s.Add(&resultstore.RawResult{ID: "a", SVS: fixture.Float(2)})
	assert.Equal(t, 1, s.Len())
	r, err := s.ResultByID(context.Background(), "a")
	assert.NoError(t, err)
	assert.Equal(t, 2.0, *r.SVS)
}
