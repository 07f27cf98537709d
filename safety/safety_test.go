package safety

import (
	"testing"

	"github.com/phildougherty/llmsh/config"
)

func defaultChecker(t *testing.T) *Checker {
	t.Helper()
	c, err := NewChecker(config.Safety{
		DangerPatterns: []string{
			`^rm(\s|$)`, `^dd(\s|$)`, `^mkfs`,
			`^sudo\s+(rm|dd|mkfs|fdisk|chown|chmod)(\s|$)`,
			`(^|[^>])>([^>]|$)`,
		},
		ProtectedPaths: []string{"/etc/**", "/boot/**"},
	})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return c
}

func TestCheck(t *testing.T) {
	c := defaultChecker(t)

	tests := []struct {
		command   string
		dangerous bool
	}{
		{"ls -la", false},
		{"rm -rf build", true},
		{"sudo rm /tmp/x", true},
		{"firmware-update", false}, // prefix match must not catch substrings
		{"echo hi > out.txt", true},
		{"cat log >> archive.txt", false}, // append is not an overwrite
		{"dd if=/dev/zero of=/dev/sda", true},
		{"cat /etc/passwd", true},
		{"cat /boot/grub/grub.cfg", true},
		{"cat /home/user/etc", false},
		{"grep root '/etc/shadow'", true},
	}

	for _, tt := range tests {
		if got := c.Dangerous(tt.command); got != tt.dangerous {
			t.Errorf("Dangerous(%q) = %v, want %v", tt.command, got, tt.dangerous)
		}
	}
}

func TestCheckReasonsNameThePath(t *testing.T) {
	c := defaultChecker(t)
	reasons := c.Check("rm /etc/hosts")
	if len(reasons) != 2 {
		t.Fatalf("reasons = %v, want pattern reason plus path reason", reasons)
	}
}

func TestNewCheckerRejectsBadPattern(t *testing.T) {
	if _, err := NewChecker(config.Safety{DangerPatterns: []string{"("}}); err == nil {
		t.Error("bad regex accepted")
	}
	if _, err := NewChecker(config.Safety{ProtectedPaths: []string{"/etc/["}}); err == nil {
		t.Error("bad glob accepted")
	}
}
