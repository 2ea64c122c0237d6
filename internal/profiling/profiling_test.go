package profiling

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackAndTopN(t *testing.T) {
	ResetFrame()
	stop := Track("slow")
	time.Sleep(2 * time.Millisecond)
	stop()
	Track("fast")()
	Track("fast")()

	assert.Equal(t, 1, Calls("slow"))
	assert.Equal(t, 2, Calls("fast"))
	assert.GreaterOrEqual(t, Snapshot()["slow"], 2*time.Millisecond)

	top := TopN(1)
	assert.True(t, strings.HasPrefix(top, "slow:"), top)
	assert.True(t, strings.HasSuffix(top, "ms(1)"), top)

	ResetFrame()
	assert.Empty(t, Snapshot())
	assert.Equal(t, "", TopN(3))
}
