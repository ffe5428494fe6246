package mocks

// mockgen rules for generating mocks for exported interfaces (reflection mode).
//go:generate sh -c "mockgen -package=refcnt $PACKAGE/refcnt RefCountable | genclean -pkg $PACKAGE/refcnt -out $GOPATH/src/$PACKAGE/refcnt/refcnt_mock.go"
