package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-suite-api/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "org-1", "manager", "erp-suite", 5)
	require.NoError(t, err)

	userID, orgID, role, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, "org-1", orgID)
	assert.Equal(t, "manager", role)
}

func TestGenerate_SuperAdminSinOrganizacion(t *testing.T) {
	token, err := jwt.Generate("secreto", "root", "", "super_admin", "erp-suite", 5)
	require.NoError(t, err)

	_, orgID, role, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Empty(t, orgID)
	assert.Equal(t, "super_admin", role)
}

func TestParse_Rejections(t *testing.T) {
	token, err := jwt.Generate("secreto", "u-1", "org-1", "user", "erp-suite", 5)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse("otro-secreto", token)
	assert.Error(t, err, "firma con otro secreto debe fallar")

	expired, err := jwt.Generate("secreto", "u-1", "org-1", "user", "erp-suite", -1)
	require.NoError(t, err)
	_, _, _, err = jwt.Parse("secreto", expired)
	assert.Error(t, err, "token expirado debe fallar")

	_, err = jwt.Generate("", "u-1", "org-1", "user", "erp-suite", 5)
	assert.Error(t, err)
}
