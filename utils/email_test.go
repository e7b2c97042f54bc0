package utils

import "testing"

func TestMailDialerBuiltOnce(t *testing.T) {
	first := mailDialer()
	if first == nil {
		t.Fatal("mailDialer returned nil")
	}
	if second := mailDialer(); second != first {
		t.Error("mailDialer rebuilt the dialer on a second call")
	}
}
