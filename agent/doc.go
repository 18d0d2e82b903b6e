// Package agent is the dialogue layer of a grocery session.
//
// An Assistant turns one user utterance into one spoken reply:
//
//  1. MatchCommand recognizes short imperative phrases ("add 2 milk",
//     "track <id>") and calls the matching tool without a model round trip.
//  2. Anything else is sent to a model.Model together with the tool
//     definitions. Tool calls are executed by an Executor and their results
//     fed back until the model answers in text or MaxSteps is reached.
//
// The assistant never touches the cart directly; every action goes through
// the tool package, which in turn calls the session's engine.
package agent
