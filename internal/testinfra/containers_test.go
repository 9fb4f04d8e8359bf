package testinfra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverStart(t *testing.T) {
	tests := []struct {
		name    string
		run     func() error
		wantErr string
	}{
		{
			name: "panic becomes error",
			run: func() (err error) {
				defer recoverStart("minio", &err)
				panic("rootless Docker not found")
			},
			wantErr: "start minio: docker unavailable: rootless Docker not found",
		},
		{
			name: "returned error is kept",
			run: func() (err error) {
				defer recoverStart("postgres", &err)
				return errors.New("pull failed")
			},
			wantErr: "pull failed",
		},
		{
			name: "success",
			run: func() (err error) {
				defer recoverStart("postgres", &err)
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}
