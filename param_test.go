package keymaster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParam(t *testing.T) {
	t.Setenv("KEYMASTER_TEST_PARAM", "from-env")

	assert.Equal(t, "from-config", Param(map[string]interface{}{"KEYMASTER_TEST_PARAM": "from-config"}, "KEYMASTER_TEST_PARAM"))
	assert.Equal(t, "from-env", Param(nil, "KEYMASTER_TEST_PARAM"))
	assert.Equal(t, "2", Param(map[string]interface{}{"VERSION": 2}, "VERSION"))
	assert.Equal(t, "", Param(nil, "KEYMASTER_TEST_UNSET"))
}
