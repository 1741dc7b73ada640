package main

import (
	"testing"

	"priorify/interfaces/http/rest/middleware"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

func TestApplyAuthorizerClaims(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"x-user-id": "spoofed", "accept": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"sub": "u1", "email": "u1@example.com", "custom:roles": "[admin]"},
				},
			},
		},
	}

	assert.True(t, applyAuthorizerClaims(&req))
	assert.NotContains(t, req.Headers, "x-user-id")
	assert.Equal(t, "u1", req.Headers[middleware.HeaderUserID])
	assert.Equal(t, "u1@example.com", req.Headers[middleware.HeaderUserEmail])
	assert.Equal(t, "admin", req.Headers[middleware.HeaderUserRoles])
	assert.Equal(t, "true", req.Headers[middleware.HeaderGatewayAuthorized])
	assert.Equal(t, "application/json", req.Headers["accept"])
}

func TestApplyAuthorizerClaims_NoAuthorizer(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"X-API-Gateway-Authorized": "true", "X-User-ID": "spoofed"},
	}

	assert.False(t, applyAuthorizerClaims(&req))
	assert.Empty(t, req.Headers)
}
