package lawtext

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips leading metadata and blank lines",
			input:    "[법령제목] 주민등록법\n[지역] 서울특별시\n[담당부서] 총무과\n\n본문 내용입니다.",
			expected: "본문 내용입니다.",
		},
		{
			name:     "single tag then body",
			input:    "[법령제목] X법\n\n본문내용",
			expected: "본문내용",
		},
		{
			name:     "metadata only yields empty",
			input:    "[지역] 서울\n\n[담당부서] 민원과\n",
			expected: "",
		},
		{
			name:     "no metadata keeps everything",
			input:    "본문 첫 줄\n둘째 줄",
			expected: "본문 첫 줄\n둘째 줄",
		},
		{
			name:     "tag after body start is kept",
			input:    "[법령제목] X법\n본문 시작\n[지역] 이 줄은 본문입니다",
			expected: "본문 시작\n[지역] 이 줄은 본문입니다",
		},
		{
			name:     "blank lines inside body survive",
			input:    "[담당부서] 총무과\n첫 단락\n\n둘째 단락",
			expected: "첫 단락\n\n둘째 단락",
		},
		{
			name:     "indented metadata line is still metadata",
			input:    "  [법령제목] X법\n본문",
			expected: "본문",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
