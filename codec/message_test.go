// file: gate/codec/message_test.go
package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresAuth(t *testing.T) {
	assert.False(t, RequiresAuth(Auth{Token: "t"}))
	assert.False(t, RequiresAuth(Ping{}))

	assert.True(t, RequiresAuth(Subscribe{Subject: "test", ID: 1}))
	assert.True(t, RequiresAuth(Unsubscribe{ID: 1}))
	assert.True(t, RequiresAuth(Publish{Subject: "test"}))
	assert.True(t, RequiresAuth(Request{Subject: "test", TimeoutMS: 1000, RequestID: 1}))
}
