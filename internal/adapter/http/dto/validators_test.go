package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RequestOTPRequest{
		MobileNumber: "  03001234567  ",
		OrderID:      " LINK-001 ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "03001234567", req.MobileNumber)
	assert.Equal(t, "LINK-001", req.OrderID)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := DeactivateLinkRequest{
		Reason: "customer <script>alert('x')</script> request",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Reason, "&lt;script&gt;")
	assert.NotContains(t, req.Reason, "<script>")
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ORDER-001",
		"LINK_002",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"order 001",   // space
		"order<001>",  // angle brackets
		"order;DROP",  // semicolon
		"",            // empty
		"hello world", // space
		"order\n001",  // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestMSISDN_Valid(t *testing.T) {
	cases := []string{
		"03001234567",
		"03451112233",
		"03999999999",
	}
	for _, tc := range cases {
		assert.True(t, msisdnRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestMSISDN_Invalid(t *testing.T) {
	cases := []string{
		"3001234567",    // missing leading zero
		"030012345",     // too short
		"030012345678",  // too long
		"04001234567",   // wrong prefix
		"+923001234567", // international format not accepted
		"0300123456a",   // non-digit
		"",
	}
	for _, tc := range cases {
		assert.False(t, msisdnRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
