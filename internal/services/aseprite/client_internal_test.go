package aseprite

import "testing"

func TestParseExportLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantOK  bool
		wantErr bool
		want    SheetInfo
	}{
		{
			"valid",
			`JSON_EXPORT:{"path":"/tmp/hero_run.png","width":16,"height":24,"frame_count":6,"tag_name":"run"}`,
			true, false,
			SheetInfo{Path: "/tmp/hero_run.png", Width: 16, Height: 24, FrameCount: 6, TagName: "run"},
		},
		{
			"untagged",
			`  JSON_EXPORT:{"path":"/tmp/flag.png","width":8,"height":8,"frame_count":1,"tag_name":""}  `,
			true, false,
			SheetInfo{Path: "/tmp/flag.png", Width: 8, Height: 8, FrameCount: 1},
		},
		{"other output", "Aseprite 1.3.7", false, false, SheetInfo{}},
		{"empty", "", false, false, SheetInfo{}},
		{"bad json", "JSON_EXPORT:{not json", false, true, SheetInfo{}},
		{"zero frames", `JSON_EXPORT:{"path":"/tmp/x.png","width":8,"height":8,"frame_count":0}`, false, true, SheetInfo{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := parseExportLine(tt.line)
			if ok != tt.wantOK || (err != nil) != tt.wantErr {
				t.Fatalf("parseExportLine(%q) ok=%v err=%v", tt.line, ok, err)
			}
			if got != tt.want {
				t.Fatalf("parseExportLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}
