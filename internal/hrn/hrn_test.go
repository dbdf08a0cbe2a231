package hrn

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"hrn:hodei:iam::t1:User/alice",
		"hrn:hodei:s3::t1:Bucket/b1",
		"hrn:hodei:::t1:Account/t1",
		"hrn:hodei:org-units::t1:Ou/eng-team",
	}

	for _, s := range cases {
		h, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := Render(h); got != s {
			t.Errorf("Render(Parse(%q)) = %q, want %q", s, got, s)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-an-hrn",
		"hrn:hodei:iam::t1:User",        // missing resource id
		"arn:hodei:iam::t1:User/alice",  // wrong prefix
		"hrn:hodei:iam::t1:User/a/extra", // too many slashes
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", s)
		}
	}
}

func TestServiceLoweredOnRender(t *testing.T) {
	h := HRN{Partition: "hodei", Service: "IAM", AccountID: "t1", ResourceType: "User", ResourceID: "alice"}
	got := Render(h)
	want := "hrn:hodei:iam::t1:User/alice"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestToCedarType(t *testing.T) {
	cases := []struct {
		hrn  string
		want EntityTypeName
	}{
		{"hrn:hodei:iam::t1:User/alice", "Iam::User"},
		{"hrn:hodei:s3::t1:Bucket/b1", "S3::Bucket"},
		{"hrn:hodei:org-units::t1:Ou/eng", "OrgUnits::Ou"},
	}
	for _, c := range cases {
		h, err := Parse(c.hrn)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.hrn, err)
		}
		if got := ToCedarType(h); got != c.want {
			t.Errorf("ToCedarType(%q) = %q, want %q", c.hrn, got, c.want)
		}
	}
}

func TestToCedarTypeIsPure(t *testing.T) {
	h, _ := Parse("hrn:hodei:iam::t1:User/alice")
	a := ToCedarType(h)
	b := ToCedarType(h)
	if a != b {
		t.Errorf("ToCedarType not pure: %q != %q", a, b)
	}
}

func TestToEUID(t *testing.T) {
	h, _ := Parse("hrn:hodei:iam::t1:User/alice")
	euid := ToEUID(h)
	if euid.Type != "Iam::User" || euid.ID != "alice" {
		t.Errorf("ToEUID = %+v, want {Iam::User alice}", euid)
	}
}

type fakeAccountType struct{}

func (fakeAccountType) HrnService() string      { return "org" }
func (fakeAccountType) HrnResourceType() string { return "Account" }

func TestForType(t *testing.T) {
	h := ForType[fakeAccountType]("hodei", "t1", "acct-1")
	want := "hrn:hodei:org::t1:Account/acct-1"
	if got := Render(h); got != want {
		t.Errorf("ForType = %q, want %q", got, want)
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	h, _ := Parse("hrn:hodei:iam::t1:User/alice")
	data, err := h.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var h2 HRN
	if err := h2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if h2 != h {
		t.Errorf("round trip mismatch: %+v != %+v", h2, h)
	}
}
