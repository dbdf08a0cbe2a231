package typedschema

import "testing"

func TestBuildProducesNamespacePerService(t *testing.T) {
	entityTypes := []EntityTypeDescriptor{
		{
			Service:      "iam",
			ResourceType: "User",
			IsPrincipal:  true,
			Attributes: []Attribute{
				{Name: "email", Type: String()},
				{Name: "groups", Type: SetOf(EntityRef("Iam::Group"))},
			},
		},
		{Service: "iam", ResourceType: "Group"},
		{Service: "s3", ResourceType: "Bucket"},
	}
	actions := []ActionDescriptor{
		{Name: "read", PrincipalType: "Iam::User", ResourceType: "S3::Bucket"},
	}

	s, err := NewAssembler().Build(entityTypes, actions)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s == nil {
		t.Fatal("Build returned nil schema")
	}
}

func TestBuildRejectsConflictingDeclarations(t *testing.T) {
	entityTypes := []EntityTypeDescriptor{
		{Service: "iam", ResourceType: "User", Attributes: []Attribute{{Name: "email", Type: String()}}},
		{Service: "iam", ResourceType: "User", Attributes: []Attribute{{Name: "email", Type: Long()}}},
	}

	_, err := NewAssembler().Build(entityTypes, nil)
	if err == nil {
		t.Fatal("expected conflicting declaration error, got nil")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	entityTypes := []EntityTypeDescriptor{
		{Service: "iam", ResourceType: "User", Attributes: []Attribute{{Name: "email", Type: String()}}},
	}

	s1, err := NewAssembler().Build(entityTypes, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	j1, err := s1.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	s2, err := NewAssembler().Build(entityTypes, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	j2, err := s2.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	if string(j1) != string(j2) {
		t.Errorf("schema build not deterministic:\n%s\nvs\n%s", j1, j2)
	}
}
