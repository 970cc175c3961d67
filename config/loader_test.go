package config

import "testing"

func TestLoadAppConfigBytesDefaults(t *testing.T) {
	doc := []byte("server:\n  port: 16181\nprognosis:\n  engineChange: 7\n")
	if err := LoadAppConfigBytes(doc); err != nil {
		t.Fatalf("LoadAppConfigBytes: %v", err)
	}
	if Config.Server.Port != 16181 {
		t.Errorf("port = %d, want 16181", Config.Server.Port)
	}
	if Config.Prognosis.EngineChange != 7 {
		t.Errorf("engineChange = %d, want override 7", Config.Prognosis.EngineChange)
	}
	if Config.Prognosis.DirectionChange != 3 {
		t.Errorf("directionChange = %d, want default 3", Config.Prognosis.DirectionChange)
	}
	if Config.Prognosis.WaitForDeparture != 2 {
		t.Errorf("waitForDeparture = %d, want default 2", Config.Prognosis.WaitForDeparture)
	}
}

func TestLoadAppConfigBytesPortDefault(t *testing.T) {
	if err := LoadAppConfigBytes([]byte("prognosis: {}\n")); err != nil {
		t.Fatalf("LoadAppConfigBytes: %v", err)
	}
	if Config.Server.Port != 16181 {
		t.Errorf("port = %d, want default 16181", Config.Server.Port)
	}
}

func TestLoadAppConfigBytesRejectsBadPort(t *testing.T) {
	if err := LoadAppConfigBytes([]byte("server:\n  port: -1\n")); err == nil {
		t.Fatal("expected validation error for negative port")
	}
}
