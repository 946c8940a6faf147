package merge

import "testing"

func TestExcluder_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"NoPatterns", nil, "bin/app", false},
		{"EmptyPattern", []string{""}, "bin/app", false},

		{"BaseNameGlob", []string{"*.h"}, "include/QtCore/qglobal.h", true},
		{"BaseNameGlobMiss", []string{"*.h"}, "lib/libQt6Core.dylib", false},
		{"ExactBaseName", []string{"README"}, "share/doc/README", true},

		{"DirPatternTopLevel", []string{"doc/"}, "doc/html/index.html", true},
		{"DirPatternNested", []string{"Headers/"}, "lib/QtCore.framework/Headers/qstring.h", true},
		{"DirPatternFileSameName", []string{"doc/"}, "bin/doc", false},
		{"DirPatternGlob", []string{"*.dSYM/"}, "bin/app.dSYM/Contents/Info.plist", true},
		{"DirPatternWithPath", []string{"lib/cmake/"}, "lib/cmake/Qt6/Qt6Config.cmake", true},
		{"DirPatternWithPathNested", []string{"lib/cmake/"}, "sub/lib/cmake/x.cmake", true},

		{"PathPattern", []string{"lib/cmake/*"}, "lib/cmake/Qt6Config.cmake", true},
		{"PathPatternNoDescend", []string{"lib/*"}, "lib/cmake/Qt6Config.cmake", false},

		{"AnyDepthName", []string{"**/*.prl"}, "lib/QtCore.framework/QtCore.prl", true},
		{"AnyDepthDirName", []string{"**/Resources"}, "lib/QtCore.framework/Resources/Info.plist", true},
		{"AnyDepthPath", []string{"**/Resources/*.plist"}, "lib/QtCore.framework/Resources/Info.plist", true},
		{"AnyDepthPathMiss", []string{"**/Resources/*.plist"}, "lib/QtCore.framework/QtCore", false},

		{"SecondPatternMatches", []string{"*.h", "*.a"}, "lib/libz.a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewExcluder(tt.patterns).Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) with %v = %v, want %v", tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestExcluder_Empty(t *testing.T) {
	if !NewExcluder([]string{"", "  "}).Empty() {
		t.Error("blank patterns should yield an empty excluder")
	}
	if NewExcluder([]string{"*.h"}).Empty() {
		t.Error("excluder with a pattern should not be empty")
	}
}
