package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"help-from-founder-go/internal/config"
)

var (
	// fsClient is the process-wide Firestore client.
	fsClient *firestore.Client
	// fbAuthClient is the process-wide Firebase Auth client.
	fbAuthClient *auth.Client
)

// InitFirestore initializes the Firebase Admin SDK and the Firestore and Auth
// clients. Credentials are taken, in order, from a service-account file, a
// base64 encoded service-account JSON, or Application Default Credentials.
// FIRESTORE_EMULATOR_HOST and FIREBASE_AUTH_EMULATOR_HOST are honored by the SDK.
func InitFirestore(ctx context.Context, appConfig *config.ServerConfig, logger *zap.Logger) error {
	if appConfig == nil {
		return errors.New("InitFirestore: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist; falling back to ADC lookup by the SDK",
				zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
		logger.Info("Initializing Firebase with base64 encoded service account JSON")
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
	}

	var fbConfig *firebase.Config
	if appConfig.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("app.Firestore: %w", err)
	}

	authCl, err := app.Auth(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("app.Auth: %w", err)
	}

	fsClient = client
	fbAuthClient = authCl
	logger.Info("Firestore and Firebase Auth clients initialized",
		zap.String("projectID", appConfig.FirebaseProjectID))
	return nil
}

// GetFirestoreClient returns the process-wide Firestore client, or nil if
// InitFirestore has not succeeded.
func GetFirestoreClient() *firestore.Client {
	return fsClient
}

// GetFirebaseAuthClient returns the process-wide Firebase Auth client, or nil
// if InitFirestore has not succeeded.
func GetFirebaseAuthClient() *auth.Client {
	return fbAuthClient
}

// CloseFirestore releases the Firestore client.
func CloseFirestore() error {
	if fsClient == nil {
		return nil
	}
	return fsClient.Close()
}
