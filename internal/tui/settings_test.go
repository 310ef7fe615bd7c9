package tui

import (
	"reflect"
	"testing"

	"github.com/hassdesk/hassdesk/internal/models"
)

func daemonValues() map[string]interface{} {
	// Shapes as they arrive over gRPC.
	return map[string]interface{}{
		models.KeyAutostart:                       false,
		models.KeyLogLevel:                        "INFO",
		models.KeyHomeAssistantSecure:             true,
		models.KeyHomeAssistantHost:               "ha.example.com",
		models.KeyHomeAssistantPort:               float64(8123),
		models.KeyHomeAssistantToken:              "secret",
		models.KeyHomeAssistantSubscribedEntities: []interface{}{"light.kitchen", "switch.fan"},
	}
}

func loadedForm(t *testing.T) *SettingsForm {
	t.Helper()
	f := NewSettingsForm()
	f.SetSize(60, 20)
	f.Load(daemonValues())
	return f
}

func moveTo(t *testing.T, f *SettingsForm, key string) {
	t.Helper()
	for i := range f.fields {
		if f.fields[i].Key == key {
			f.cursor = i
			return
		}
	}
	t.Fatalf("no field %q", key)
}

func TestSettingsFormLoad(t *testing.T) {
	f := loadedForm(t)

	tests := []struct {
		key       string
		value     string
		boolValue bool
	}{
		{models.KeyAutostart, "", false},
		{models.KeyLogLevel, "INFO", false},
		{models.KeyHomeAssistantSecure, "", true},
		{models.KeyHomeAssistantHost, "ha.example.com", false},
		{models.KeyHomeAssistantPort, "8123", false},
		{models.KeyHomeAssistantToken, "secret", false},
	}
	for _, tt := range tests {
		got, ok := f.Field(tt.key)
		if !ok {
			t.Errorf("missing field %s", tt.key)
			continue
		}
		if got.Value != tt.value || got.BoolValue != tt.boolValue {
			t.Errorf("%s = (%q, %v), want (%q, %v)", tt.key, got.Value, got.BoolValue, tt.value, tt.boolValue)
		}
	}
}

func TestSettingsFormLoadLocalShapes(t *testing.T) {
	f := NewSettingsForm()
	f.Load(map[string]interface{}{models.KeyHomeAssistantPort: 8443})

	port, _ := f.Field(models.KeyHomeAssistantPort)
	if port.Value != "8443" {
		t.Errorf("port = %q, want 8443", port.Value)
	}
	host, _ := f.Field(models.KeyHomeAssistantHost)
	if host.Value != models.DefaultHost {
		t.Errorf("host = %q, want default", host.Value)
	}
}

func TestSettingsFormToggle(t *testing.T) {
	f := loadedForm(t)
	moveTo(t, f, models.KeyHomeAssistantSecure)

	changed, key, value := f.Toggle()
	if !changed || key != models.KeyHomeAssistantSecure || value != false {
		t.Errorf("Toggle() = (%v, %q, %v)", changed, key, value)
	}

	moveTo(t, f, models.KeyHomeAssistantHost)
	if changed, _, _ := f.Toggle(); changed {
		t.Error("Toggle() changed a text field")
	}
}

func TestSettingsFormCycleLogLevel(t *testing.T) {
	f := loadedForm(t)
	moveTo(t, f, models.KeyLogLevel)

	tests := []struct {
		delta int
		want  string
	}{
		{1, "WARNING"},
		{1, "ERROR"},
		{1, "CRITICAL"},
		{1, "DEBUG"},
		{-1, "CRITICAL"},
	}
	for _, tt := range tests {
		changed, key, value := f.Cycle(tt.delta)
		if !changed || key != models.KeyLogLevel || value != tt.want {
			t.Fatalf("Cycle(%d) = (%v, %q, %v), want %s", tt.delta, changed, key, value, tt.want)
		}
	}
}

func TestSettingsFormEditPort(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		changed bool
		value   interface{}
		wantErr bool
	}{
		{"valid", "8443", true, 8443, false},
		{"unchanged", "8123", false, nil, false},
		{"zero", "0", false, nil, true},
		{"too large", "70000", false, nil, true},
		{"text", "http", false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := loadedForm(t)
			moveTo(t, f, models.KeyHomeAssistantPort)
			if !f.StartEdit() {
				t.Fatal("StartEdit() = false")
			}
			f.InputModel().SetValue(tt.input)

			changed, key, value, err := f.FinishEdit()
			if (err != nil) != tt.wantErr {
				t.Fatalf("FinishEdit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if changed != tt.changed || !reflect.DeepEqual(value, tt.value) {
				t.Errorf("FinishEdit() = (%v, %q, %v), want (%v, %v)", changed, key, value, tt.changed, tt.value)
			}
			if f.IsEditing() {
				t.Error("still editing after FinishEdit")
			}
			if tt.wantErr {
				if port, _ := f.Field(models.KeyHomeAssistantPort); port.Value != "8123" {
					t.Errorf("rejected edit changed the field to %q", port.Value)
				}
			}
		})
	}
}

func TestSettingsFormEditHostRejectsEmpty(t *testing.T) {
	f := loadedForm(t)
	moveTo(t, f, models.KeyHomeAssistantHost)
	f.StartEdit()
	f.InputModel().SetValue("   ")

	if _, _, _, err := f.FinishEdit(); err == nil {
		t.Error("FinishEdit() accepted an empty host")
	}
}

func TestSettingsFormCancelEdit(t *testing.T) {
	f := loadedForm(t)
	moveTo(t, f, models.KeyHomeAssistantToken)
	f.StartEdit()
	f.InputModel().SetValue("other")
	f.CancelEdit()

	if f.IsEditing() {
		t.Error("still editing after CancelEdit")
	}
	if token, _ := f.Field(models.KeyHomeAssistantToken); token.Value != "secret" {
		t.Errorf("token = %q after cancel", token.Value)
	}
}

func TestListValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"grpc", []interface{}{"light.a", "switch.b"}, []string{"light.a", "switch.b"}},
		{"local", []string{"light.a"}, []string{"light.a"}},
		{"missing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("listValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
