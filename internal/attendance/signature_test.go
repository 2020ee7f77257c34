package attendance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	payload := []byte(`{"student_id":"2021001","subject":"Mathematics"}`)

	signature := Sign("my-secret-key", payload)
	assert.True(t, strings.HasPrefix(signature, "sha256="))
	assert.Len(t, signature, len("sha256=")+64)
	assert.Equal(t, signature, Sign("my-secret-key", payload))
	assert.NotEqual(t, signature, Sign("other-key", payload))
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"student_id":"2021001","subject":"Physics"}`)
	valid := Sign(secret, payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		expected  bool
	}{
		{name: "valid signature", secret: secret, payload: payload, signature: valid, expected: true},
		{name: "invalid signature", secret: secret, payload: payload, signature: "sha256=invalid", expected: false},
		{name: "wrong secret", secret: "wrong-secret", payload: payload, signature: valid, expected: false},
		{name: "modified payload", secret: secret, payload: []byte(`{"student_id":"2021002","subject":"Physics"}`), signature: valid, expected: false},
		{name: "empty signature", secret: secret, payload: payload, signature: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Verify(tt.secret, tt.payload, tt.signature))
		})
	}
}
