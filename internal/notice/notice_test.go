package notice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fingerpick/internal/interaction"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"en", language.English},
		{"en-GB", language.English},
		{"ko", language.Korean},
		{"ko-KR", language.Korean},
		{"fr", language.English},
		{"", language.English},
		{"not a tag!", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.in))
		})
	}
}

func TestText_NotEnoughFingersAsksForOneMore(t *testing.T) {
	assert.Equal(t, "Touch with at least 2 fingers", Text("en", interaction.NotificationNotEnoughFingers, 1))
	assert.Equal(t, "Touch with at least 4 fingers", Text("en-US", interaction.NotificationNotEnoughFingers, 3))
	assert.Equal(t, "손가락을 2개 이상 올려 주세요", Text("ko", interaction.NotificationNotEnoughFingers, 1))
}

func TestText_SingularFinger(t *testing.T) {
	assert.Equal(t, "Touch with at least 1 finger", Text("en", interaction.NotificationNotEnoughFingers, 0))
}

func TestText_PickFailed(t *testing.T) {
	assert.Equal(t, "Could not pick with the current settings", Text("en", interaction.NotificationPickFailed, 1))
	assert.Equal(t, "현재 설정으로는 고를 수 없어요", Text("ko-KR", interaction.NotificationPickFailed, 1))
}

func TestText_UnknownKind(t *testing.T) {
	assert.Equal(t, "Something happened", Text("de", interaction.NotificationKind("other"), 1))
}

func TestText_IsNFC(t *testing.T) {
	s := Text("ko", interaction.NotificationNotEnoughFingers, 2)
	assert.True(t, norm.NFC.IsNormalString(s))
}
