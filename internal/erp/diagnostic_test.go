package erp

import "testing"

func TestSummarize(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{
			name:        "odata json",
			contentType: "application/json",
			body:        `{"error":{"code":"V1/320","message":{"lang":"en","value":"Plant 9999 does not exist"}}}`,
			want:        "V1/320: Plant 9999 does not exist",
		},
		{
			name:        "html title",
			contentType: "text/html",
			body:        "<html><head><title>403 Forbidden</title></head><body>nope</body></html>",
			want:        "403 Forbidden",
		},
		{
			name:        "html body only",
			contentType: "text/html; charset=utf-8",
			body:        "<html><body><h1>Service\n unavailable</h1></body></html>",
			want:        "Service unavailable",
		},
		{name: "plain", contentType: "text/plain", body: " Invalid plant \n", want: "Invalid plant"},
		{name: "empty", contentType: "", body: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Summarize(tc.contentType, []byte(tc.body)); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
