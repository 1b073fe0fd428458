package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPorts(t *testing.T) {
	qa := &MockQAService{}
	retrieval := &MockRetrievalService{}

	ports := NewPorts(qa, retrieval)

	assert.Equal(t, qa, ports.QA)
	assert.Equal(t, retrieval, ports.Retrieval)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{
			name:  "all ports set",
			ports: &Ports{QA: &MockQAService{}, Retrieval: &MockRetrievalService{}},
		},
		{
			name:    "missing qa service",
			ports:   &Ports{Retrieval: &MockRetrievalService{}},
			wantErr: ErrMissingQAService,
		},
		{
			name:    "missing retrieval service",
			ports:   &Ports{QA: &MockQAService{}},
			wantErr: ErrMissingRetrievalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingQAService.Error(), ErrMissingRetrievalService.Error())
	assert.Contains(t, ErrMissingQAService.Error(), "qa service")
	assert.Contains(t, ErrMissingRetrievalService.Error(), "retrieval service")
}
