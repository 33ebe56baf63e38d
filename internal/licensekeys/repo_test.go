package licensekeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "****-****-9X8Y", Mask("ABCD-EFGH-9X8Y"))
	assert.Equal(t, "****", Mask("AB"))
	assert.Equal(t, "****", Mask(""))
}
