package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// sessionJoinURL is Mojang's session-join endpoint, matching the literal
// string record.rs posts to in its EncryptionBeginResponse handler.
const sessionJoinURL = "https://sessionserver.mojang.com/session/minecraft/join"

// AuthData holds the credentials a recording session authenticates to
// Mojang with, loaded from the file internal/config.Config.CredentialsPath
// names. Mirrors record.rs::AuthData{selected_profile, access_token}.
type AuthData struct {
	SelectedProfile uuid.UUID `yaml:"selected_profile" json:"selected_profile"`
	AccessToken     string    `yaml:"access_token" json:"access_token"`
}

// sessionJoinRequest is the body posted to sessionJoinURL; field names
// are fixed by Mojang's API and are not Go-idiomatic by choice.
type sessionJoinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	ServerID        string `json:"serverId"`
}

// JoinSession authenticates the shared secret + server public key to
// Mojang's session server so the real server will accept the subsequent
// EncryptionBeginRequest, matching record.rs's ureq::post(...).send_json
// call expecting a 204 response.
func JoinSession(client *http.Client, auth AuthData, sharedSecret, publicKeyDER []byte) error {
	serverID := MojangServerHash("", sharedSecret, publicKeyDER)

	body := sessionJoinRequest{
		AccessToken:     auth.AccessToken,
		SelectedProfile: strings.ReplaceAll(auth.SelectedProfile.String(), "-", ""),
		ServerID:        serverID,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("proxy: encode session-join request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, sessionJoinURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("proxy: build session-join request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("proxy: session-join request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("proxy: session-join rejected: status %d", resp.StatusCode)
	}
	return nil
}
