package handlers

import (
	"net/http"

	"github.com/juju/errors"

	"access-console/internal/middleware"
	"access-console/internal/models"
	"access-console/pkg/utils"
)

// currentSession returns the authenticated session or writes a 401.
func currentSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		utils.Error(w, errors.NewUnauthorized(nil, "Unauthorized"))
		return nil, false
	}
	return sess, true
}

// companyRequest identifies a company row.
type companyRequest struct {
	GUID       string            `json:"guid"`
	TallylocID models.TallylocID `json:"tallyloc_id"`
}

func (c companyRequest) key() (models.CompanyKey, error) {
	if c.GUID == "" || c.TallylocID == "" {
		return models.CompanyKey{}, errors.NewNotValid(nil, "Company guid and tallyloc_id are required")
	}
	return models.CompanyKey{GUID: c.GUID, TallylocID: c.TallylocID}, nil
}

func decodeCompany(r *http.Request) (models.CompanyKey, error) {
	var req companyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		return models.CompanyKey{}, err
	}
	return req.key()
}
