package server_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/appleboy/gofight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionResponse struct {
	Session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"session"`
}

func TestRequestSignIn(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()

	createAccount(ioc)

	r.POST("/auth/sign_in").
		SetJSON(gofight.D{"api_key": testAPIKey}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			var payload sessionResponse
			require.NoError(t, json.Unmarshal(r.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload.Session.AccessToken)
			assert.NotEmpty(t, payload.Session.RefreshToken)
		})
}

func TestRequestSignIn_BadKey(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()

	createAccount(ioc)

	r.POST("/auth/sign_in").
		SetJSON(gofight.D{"api_key": "nope"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusUnauthorized, r.Code)
			assert.JSONEq(t, `{"error":{"message":"Invalid API key."}}`, r.Body.String())
		})
}

func TestRequestSignIn_NoKey(t *testing.T) {
	engine, _, r, cleanup := setup()
	defer cleanup()

	r.POST("/auth/sign_in").
		SetJSON(gofight.D{}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusUnauthorized, r.Code)
			assert.JSONEq(t, `{"error":{"message":"No API key provided."}}`, r.Body.String())
		})
}

func TestRequestSessionRefresh(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()

	_, session := createAccountWithSession(ioc)

	r.POST("/session/refresh").
		SetJSON(gofight.D{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
		}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			var payload sessionResponse
			require.NoError(t, json.Unmarshal(r.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload.Session.AccessToken)
			assert.NotEqual(t, session.AccessToken, payload.Session.AccessToken)
		})
}

func TestRequestSessionRefresh_BadTokens(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()

	createAccountWithSession(ioc)

	r.POST("/session/refresh").
		SetJSON(gofight.D{
			"access_token":  "wrong",
			"refresh_token": "wrong",
		}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
			assert.JSONEq(t, `{"error":{"tag":"invalid-parameters","message":"The provided parameters are not valid."}}`, r.Body.String())
		})
}
