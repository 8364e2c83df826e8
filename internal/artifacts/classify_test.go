package artifacts

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Classification
	}{
		{"libproton_sdk.dll", Match},
		{"proton_core.dll", Match},
		{"proton", Match},
		{"libproton_crypto.so", Match},
		{"proton_sdk.dylib", Match},
		{"helper.dll", Skip},
		{"Proton.dll", Skip}, // case-sensitive
		{"PROTON.so", Skip},
		{"", Skip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsLibrary(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"proton_sdk.dll", true},
		{"libproton.so", true},
		{"proton.dylib", true},
		{"proton.DLL", true},
		{"proton.pdb", false},
		{"proton.json", false},
		{"proton", false},
	}

	for _, tt := range tests {
		if got := IsLibrary(tt.name); got != tt.want {
			t.Errorf("IsLibrary(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
