// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestCountdown_DispatchAfterClose covers a Close that lands between a tick
releasing its lock and running the collected callbacks.
*/
func TestCountdown_DispatchAfterClose(t *testing.T) {
	fired := 0
	callbacks := []func(){func() { fired++ }, func() { fired++ }}

	open := New(1)
	open.dispatch(callbacks)
	assert.Equal(t, 2, fired)

	closed := New(1)
	closed.Close()
	closed.dispatch(callbacks)
	assert.Equal(t, 2, fired)
}
