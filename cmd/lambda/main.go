package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"priorify/infrastructure/config"
	"priorify/infrastructure/di"
	"priorify/interfaces/http/rest/middleware"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda     *chiadapter.ChiLambdaV2
	container     *di.Container
	coldStart     = true
	coldStartTime time.Time
)

func setup() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	mux, ok := container.Router.(*chi.Mux)
	if !ok {
		log.Fatal("Router is not a chi.Mux")
	}
	chiLambda = chiadapter.NewV2(mux)

	container.Logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// identityHeaders are only ever set from the authorizer context
var identityHeaders = []string{
	middleware.HeaderGatewayAuthorized,
	middleware.HeaderUserID,
	middleware.HeaderUserEmail,
	middleware.HeaderUserRoles,
}

// applyAuthorizerClaims replaces any client supplied identity headers with
// the claims the API Gateway JWT authorizer verified.
func applyAuthorizerClaims(req *events.APIGatewayV2HTTPRequest) bool {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	for key := range req.Headers {
		for _, h := range identityHeaders {
			if strings.EqualFold(key, h) {
				delete(req.Headers, key)
			}
		}
	}

	authorizer := req.RequestContext.Authorizer
	if authorizer == nil || authorizer.JWT == nil {
		return false
	}
	claims := authorizer.JWT.Claims
	if claims["sub"] == "" {
		return false
	}

	req.Headers[middleware.HeaderGatewayAuthorized] = "true"
	req.Headers[middleware.HeaderUserID] = claims["sub"]
	if email := claims["email"]; email != "" {
		req.Headers[middleware.HeaderUserEmail] = email
	}
	if roles := claims["custom:roles"]; roles != "" {
		req.Headers[middleware.HeaderUserRoles] = strings.Trim(roles, "[]")
	}
	return true
}

// Handler proxies API Gateway HTTP API requests to the router
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	authorized := applyAuthorizerClaims(&req)
	container.Logger.Debug("Lambda received request",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("requestID", req.RequestContext.RequestID),
		zap.Bool("authorized", authorized),
	)

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if err != nil {
		container.Logger.Error("Lambda proxy failed", zap.Error(err))
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}, err
	}

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		container.Logger.Error("Lambda error response",
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status", resp.StatusCode),
		)
	}
	return resp, nil
}

func main() {
	setup()
	lambda.Start(Handler)
}
