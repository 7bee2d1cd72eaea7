package identity

// Identity bundles every service over one store and one configuration.
type Identity struct {
	Accounts      *AccountService
	Authenticator *Authenticator
	Activation    *ActivationWorkflow
	Reset         *ResetWorkflow
	Graph         *FollowGraph
}

// New wires all services to store. Unless WithDigester is among opts, a
// single bcrypt digester at cfg.HashCost is shared by all of them.
func New(store Store, cfg Config, opts ...Option) *Identity {
	cfg = cfg.withDefaults()
	opts = append([]Option{WithDigester(NewBcryptDigester(cfg.HashCost))}, opts...)

	return &Identity{
		Accounts:      NewAccountService(store, cfg, opts...),
		Authenticator: NewAuthenticator(store, cfg, opts...),
		Activation:    NewActivationWorkflow(store, cfg, opts...),
		Reset:         NewResetWorkflow(store, cfg, opts...),
		Graph:         NewFollowGraph(store, cfg, opts...),
	}
}

// Sessions is a shortcut for Authenticator.Sessions.
func (i *Identity) Sessions() *RememberManager {
	return i.Authenticator.Sessions()
}
